// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthLoginSuccess       = "auth.login_success"

	// Staff
	KeyStaffNotFound     = "staff.not_found"
	KeyAdminAccessDenied = "admin.access_denied"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// Frames
	KeyFrameMissing     = "frame.missing"
	KeyFrameInvalidType = "frame.invalid_type"
	KeyFrameTooLarge    = "frame.too_large"
	KeyStreamAtCapacity = "stream.at_capacity"

	// Catalog
	KeyVariantNotFound  = "variant.not_found"
	KeyProductNotFound  = "product.not_found"
	KeyCategoryNotFound = "category.not_found"
	KeyProductCreated   = "product.created"
	KeyVariantUpdated   = "variant.updated"

	// Recommendations and tracking
	KeyRecommendationNotFound     = "recommendation.not_found"
	KeyRecommendationItemNotFound = "recommendation_item.not_found"
	KeySessionNotFound            = "session.not_found"
	KeySessionEnded               = "session.ended"
	KeyInteractionRecorded        = "interaction.recorded"
	KeyRatingRecorded             = "rating.recorded"

	// Search
	KeySearchNoResults    = "search.no_results"
	KeySearchResultsFound = "search.results_found"

	// Shifts
	KeyShiftNotFound        = "shift.not_found"
	KeyShiftSummaryNotFound = "shift_summary.not_found"
	KeyShiftOpened          = "shift.opened"
	KeyShiftClosed          = "shift.closed"
	KeyShiftNoActive        = "shift.no_active"
	KeyReportNotFound       = "report.not_found"
)
