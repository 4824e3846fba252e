package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	RoleParticipant = "participant"
	RoleAdmin       = "admin"
)

const MimeJSON = "application/json"
