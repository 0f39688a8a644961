package sync

import (
	"fmt"

	"github.com/peteski22/booksync/internal/mirror"
)

// watermarkLayout renders the watermark with a numeric UTC offset, as the query language expects.
const watermarkLayout = "2006-01-02T15:04:05-07:00"

// buildFilter decides the effective sync type and the filter applied to every kind.
// A delta request without a watermark is performed as a full sync.
func buildFilter(conn *mirror.Connection, requested mirror.SyncType) (mirror.SyncType, string) {
	if requested != mirror.SyncTypeDelta || conn.LastSyncAt == nil || conn.LastSyncAt.IsZero() {
		return mirror.SyncTypeFull, ""
	}

	watermark := conn.LastSyncAt.UTC().Format(watermarkLayout)
	return mirror.SyncTypeDelta, fmt.Sprintf("MetaData.LastUpdatedTime > '%s'", watermark)
}
