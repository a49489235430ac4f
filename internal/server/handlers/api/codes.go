package api

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeAccessDenied   = "E_ACCESS_DENIED"   // access denied

	// Auth errors
	CodeAuthInvalidCredentials    = "E_AUTH_INVALID_CREDENTIALS"     // authentication credentials are invalid, expired, or malformed
	CodeAuthInvalidScope          = "E_AUTH_INVALID_SCOPE"           // the requested scope string is malformed
	CodeAuthTokenGenerationFailed = "E_AUTH_TOKEN_GENERATION_FAILED" // a failure during the generation of new access tokens

	// Account errors
	CodeAccountExists       = "E_ACCOUNT_EXISTS"        // the username is already registered
	CodeAccountNotFound     = "E_ACCOUNT_NOT_FOUND"     // the account could not be found
	CodeAccountInvalidName  = "E_ACCOUNT_INVALID_NAME"  // the username is not valid
	CodeAccountCreateFailed = "E_ACCOUNT_CREATE_FAILED" // a failure while registering the account

	// Storage errors
	CodeStorageNotFound     = "E_STORAGE_NOT_FOUND"     // the document could not be found
	CodeStorageInvalidPath  = "E_STORAGE_INVALID_PATH"  // the provided storage path is invalid or malformed
	CodeStorageConflict     = "E_STORAGE_CONFLICT"      // a folder/document type conflict on the path
	CodeStoragePrecondition = "E_STORAGE_PRECONDITION"  // a conditional request header did not hold
	CodeStorageUpdateRace   = "E_STORAGE_UPDATE_RACE"   // a concurrent update raced this request
	CodeStorageThrottled    = "E_STORAGE_THROTTLED"     // the backend asked to slow down
	CodeStorageTimeout      = "E_STORAGE_TIMEOUT"       // the upload did not complete in time
	CodeStorageUnavailable  = "E_STORAGE_UNAVAILABLE"   // the storage backend failed
)
