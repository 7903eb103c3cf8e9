package model

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// GenerateUUIDWithSuffix generates a UUID with a given module name as a suffix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", module, id.String())
}

// GenerateBatchID builds the identifier reported back to the uploader, e.g. attendance_1722850000000_4821.
func GenerateBatchID(recordType RecordType, now time.Time) string {
	return fmt.Sprintf("%s_%d_%d", recordType, now.UnixMilli(), rand.Intn(10000))
}

// Paginate converts page/limit query values into a bounded limit and offset.
func Paginate(page, limit, maxLimit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return page, limit, (page - 1) * limit
}

// NewPagination fills in the page count for a result set.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
