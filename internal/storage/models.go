package storage

type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

type Transaction struct {
	ID           int64
	UserID       int64
	TransType    string
	Amount       string
	Date         string
	Category     string
	ExportStatus string
}
