package model

// AppState keys.
const (
	KeySeeded            = "seeded"
	KeyInvoiceCounter    = "invoiceCounter"
	KeyItemCounter       = "itemCounter"
	KeyCashierInfo       = "cashierInfo"
	KeyQuickPrice        = "quickPrice"
	KeyAdminPassword     = "adminPassword"
	KeyCashierPassword   = "cashierPassword"
	KeyScreenLockTimeout = "screenLockTimeout"
	KeyScreenLocked      = "isScreenLocked"
	KeyCustomSections    = "customSections"
	KeyLastBackupInfo    = "lastBackupInfo"
	KeyBackupFilePath    = "backupFilePath"
)

// IsCounterKey reports whether key holds a monotonic id counter.
// Counter keys are never lowered by an import.
func IsCounterKey(key string) bool {
	return key == KeyInvoiceCounter || key == KeyItemCounter
}

// DefaultPassword is used for both roles until one is set.
const DefaultPassword = "1234"

// DefaultQuickPrice is the football quick-price button value.
const DefaultQuickPrice = 20000
