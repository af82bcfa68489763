package utils

import "time"

// Application constants
const (
	AppName    = "CorpVoxExperts"
	AppVersion = "1.0.0"

	DefaultTimeZone = "UTC"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	JWTAccessTokenTTL = 24 * time.Hour
	SessionTTL        = 24 * time.Hour
	PasswordMinLength = 8

	// Invoice documents
	MaxInvoiceSize        = 10 * 1024 * 1024 // 10MB
	InvoiceURLExpiry      = 15 * time.Minute
	NotificationTimeout   = 30 * time.Second
	NotificationRetryWait = 5 * time.Second
)

// HTTP status strings
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error messages
const (
	ErrInvalidCredentials = "invalid credentials"
	ErrUserNotFound       = "user not found"
	ErrUserExists         = "user already exists"
	ErrInvalidToken       = "invalid token"
	ErrSessionExpired     = "session expired"
	ErrInvalidInput       = "invalid input"
	ErrInternalServer     = "internal server error"
	ErrUnauthorized       = "unauthorized"
	ErrForbidden          = "forbidden"
	ErrValidationFailed   = "validation failed"
	ErrFileUploadFailed   = "file upload failed"
)

// Cache keys
const (
	CacheSessionPrefix  = "session:"
	CacheUserPrefix     = "user:"
	CacheReferralPrefix = "referral:"
)

// Audit resources
const (
	ResourceReferral = "referral"
	ResourceBenefit  = "benefit"
	ResourceUser     = "user"
)
