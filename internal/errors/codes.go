package errors

// Error codes returned in the "error" field of every error body.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to their own copy.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED"
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"

	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthEmailAlreadyExists = "AUTH_EMAIL_ALREADY_EXISTS"
	AuthUserNotFound       = "AUTH_USER_NOT_FOUND"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Cart (CART_) ====================
	CartItemNotFound        = "CART_ITEM_NOT_FOUND"
	CartClassUnavailable    = "CART_CLASS_UNAVAILABLE"
	CartForeignChild        = "CART_FOREIGN_CHILD"
	CartAlreadyEnrolled     = "CART_ALREADY_ENROLLED"
	CartMultiCoach          = "CART_MULTI_COACH"
	CartDuplicateClass      = "CART_DUPLICATE_CLASS"
	CartNoRemainingSessions = "CART_NO_REMAINING_SESSIONS"
	CartInvalidOperation    = "CART_INVALID_OPERATION"
	CartInvalidAmount       = "CART_INVALID_AMOUNT"
	CartPasswordRequired    = "CART_PASSWORD_REQUIRED"
	CartIncorrectPassword   = "CART_INCORRECT_PASSWORD"
	CartMembershipRequired  = "CART_MEMBERSHIP_REQUIRED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
