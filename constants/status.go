package constants

// User roles
const (
	RoleMember = 0
	RoleAdmin  = 1
	RoleStaff  = 2
)

// User status
const (
	UserStatusActive   = 1
	UserStatusInactive = 0
)

// Payment status
const (
	PaymentStatusPending  = 0
	PaymentStatusApproved = 1
	PaymentStatusRejected = 2
	PaymentStatusRefunded = 3
)

// Date layout used for attendance visit days and membership expiry.
const DateLayout = "2006-01-02"
