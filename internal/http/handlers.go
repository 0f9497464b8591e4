package http

import (
	"context"
	"net/http"

	"spendyze/internal/gate"
	"spendyze/internal/services"
)

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	current := s.store.Current()
	if current.Authenticated {
		http.Redirect(w, r, string(gate.ViewHome), http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "entry.html", entryView{page: newPage("Welcome", gate.ViewEntry, current)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	username := sanitizeInput(r.PostFormValue("username"))
	outcome := s.auth.Login(r.Context(), username, r.PostFormValue("password"))
	if outcome.OK {
		http.Redirect(w, r, string(gate.ViewHome), http.StatusSeeOther)
		return
	}

	v := entryView{page: newPage("Welcome", gate.ViewEntry, s.store.Current()), FormUsername: username}
	v.Error = outcome.Message
	s.render(w, r, http.StatusOK, "entry.html", v)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	username := sanitizeInput(r.PostFormValue("username"))
	outcome := s.auth.CreateAccount(r.Context(), username, r.PostFormValue("password"))

	v := entryView{page: newPage("Welcome", gate.ViewEntry, s.store.Current()), FormUsername: username}
	if outcome.OK {
		v.Flash = outcome.Message
	} else {
		v.Error = outcome.Message
	}
	s.render(w, r, http.StatusOK, "entry.html", v)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Logout(r.Context())
	http.Redirect(w, r, string(gate.ViewEntry), http.StatusSeeOther)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	p := newPage("Add transaction", gate.ViewHome, s.store.Current())
	s.render(w, r, http.StatusOK, "home.html", newHomeView(p, services.TransactionForm{}))
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := services.TransactionForm{
		Type:           sanitizeInput(r.PostFormValue("type")),
		Amount:         sanitizeInput(r.PostFormValue("amount")),
		Date:           sanitizeInput(r.PostFormValue("date")),
		Category:       sanitizeInput(r.PostFormValue("category")),
		CustomCategory: sanitizeInput(r.PostFormValue("custom_category")),
	}

	outcome := s.txs.Add(r.Context(), form)
	p := newPage("Add transaction", gate.ViewHome, s.store.Current())
	if outcome.OK {
		p.Flash = outcome.Message
		s.render(w, r, http.StatusOK, "home.html", newHomeView(p, services.TransactionForm{Type: form.Type}))
		return
	}
	p.Error = outcome.Message
	s.render(w, r, http.StatusUnprocessableEntity, "home.html", newHomeView(p, form))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	p := newPage("Report", gate.ViewReport, s.store.Current())
	records, err := s.loader.Load(r.Context())
	if err != nil {
		p.Error = "Unable to load transactions."
	}
	s.render(w, r, http.StatusOK, "report.html", newReportView(p, records, s.loader.Chart()))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	// The snapshot is refreshed on each visit; a failure leaves it empty
	// and the conversation still works.
	_, _ = s.loader.Load(r.Context())

	p := newPage("AI consultation", gate.ViewChat, s.store.Current())
	s.render(w, r, http.StatusOK, "chat.html", newChatView(p, s.chat.State(), s.chat.Input()))
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	s.chat.SetInput(r.PostFormValue("message"))

	// The exchange belongs to the conversation, not to this request, so
	// a client disconnect does not abort it.
	s.chat.Send(context.WithoutCancel(r.Context()))

	http.Redirect(w, r, string(gate.ViewChat), http.StatusSeeOther)
}
