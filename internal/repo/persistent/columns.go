package persistent

import (
	"fmt"

	"github.com/Masterminds/squirrel"
)

const (
	// Tables
	imagesTable       = "images"
	statusEventsTable = "status_events"
	outboxTable       = "images_outbox"

	// images
	idColumn          = "id"
	originalKeyColumn = "original_key"
	vectorKeyColumn   = "vector_key"
	labelColumn       = "label"
	contentTypeColumn = "content_type"
	createdAtColumn   = "created_at"
	updatedAtColumn   = "updated_at"

	// status_events
	eventIDColumn          = "id"
	eventImageIDColumn     = "image_id"
	eventStatusColumn      = "status"
	eventDescriptionColumn = "description"
	eventCreatedAtColumn   = "created_at"

	// images_outbox
	outboxIDColumn          = "id"
	outboxAggregateIDColumn = "aggregate_id"
	outboxPayloadColumn     = "payload"
	outboxStatusColumn      = "status"
	outboxCreatedAtColumn   = "created_at"
	outboxProcessedAtColumn = "processed_at"
	outboxRetryCountColumn  = "retry_count"
)

// latestOrder orders events of one image newest first; the id breaks timestamp ties
// because event ids are time ordered.
var latestOrder = []string{eventCreatedAtColumn + " DESC", eventIDColumn + " DESC"}

// listWithLatestStatusQuery pages images newest first, each joined with exactly one row:
// the per-image latest event, pre-aggregated with ROW_NUMBER before the join so that
// images with many events do not fan out.
func listWithLatestStatusQuery(b squirrel.StatementBuilderType, limit, offset int) (string, []any, error) {
	latest, _, err := squirrel.
		Select(
			eventIDColumn,
			eventImageIDColumn,
			eventStatusColumn,
			eventDescriptionColumn,
			eventCreatedAtColumn,
			fmt.Sprintf("ROW_NUMBER() OVER (PARTITION BY %s ORDER BY %s DESC, %s DESC) AS rn",
				eventImageIDColumn, eventCreatedAtColumn, eventIDColumn),
		).
		From(statusEventsTable).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("listWithLatestStatusQuery - latest.ToSql: %w", err)
	}

	return b.
		Select(
			"i."+idColumn,
			"i."+originalKeyColumn,
			"i."+vectorKeyColumn,
			"i."+labelColumn,
			"i."+contentTypeColumn,
			"i."+createdAtColumn,
			"i."+updatedAtColumn,
			"l."+eventIDColumn,
			"l."+eventStatusColumn,
			"l."+eventDescriptionColumn,
			"l."+eventCreatedAtColumn,
		).
		From(imagesTable + " i").
		LeftJoin(fmt.Sprintf("(%s) l ON l.%s = i.%s AND l.rn = 1", latest, eventImageIDColumn, idColumn)).
		OrderBy("i."+createdAtColumn+" DESC", "i."+idColumn+" DESC").
		Limit(uint64(limit)).  //nolint:gosec // validated by the caller
		Offset(uint64(offset)). //nolint:gosec // validated by the caller
		ToSql()
}
