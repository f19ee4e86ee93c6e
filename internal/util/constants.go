package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 报表导出相关常量
const (
	MimeJSON        = "application/json"
	MimeCSV         = "text/csv"
	MimeOctetStream = "application/octet-stream"
)
