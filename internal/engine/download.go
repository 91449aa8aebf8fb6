package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/roach88/tabledog/internal/schema"
	"github.com/roach88/tabledog/internal/store"
)

// downloadRunID is reserved for the initial download; event-apply runs get
// higher ids.
const downloadRunID = 1

// download produces the initial image: every listable type in dependency
// order, one transaction per page, with T0 recorded before the first list
// call. A failure aborts the run; the download is not resumable and the
// next start replays against an empty schema.
func (e *Engine) download(ctx context.Context) error {
	if err := e.recordT0(ctx); err != nil {
		return err
	}
	slog.Info("download starting", "t0_event", e.t0ID)

	writer := schema.NewWriter(downloadRunID)
	e.nextRun = downloadRunID + 1

	// The run row commits with the first page so an interrupted download
	// is detectable on restart.
	first := true

	for _, key := range schema.DownloadOrder {
		entity := schema.Registry[key]
		if entity.ListPath == "" {
			continue
		}

		slog.Info("downloading", "type", entity.ObjType)
		cursor := ""
		pages := 0
		for {
			page, err := e.client.List(ctx, entity.ListPath, cursor, entity.ListExpand)
			if err != nil {
				return classify(err)
			}
			pages++

			items := make([]json.RawMessage, 0, len(page.Data))
			for _, raw := range page.Data {
				completed, err := e.completeNestedLists(ctx, entity, raw)
				if err != nil {
					return err
				}
				items = append(items, completed)
			}

			tx, err := e.store.Begin(ctx, e.now())
			if err != nil {
				return &ReplicationError{Code: CodeStoreIO, Err: err}
			}

			if first {
				if err := e.recordRun(tx, downloadRunID, runKindDownload); err != nil {
					tx.Rollback()
					return err
				}
				first = false
			}

			for _, raw := range items {
				if _, err := entity.Insert(tx, writer, raw); err != nil {
					tx.Rollback()
					if store.IsUniqueViolation(err) {
						return &ReplicationError{Code: CodeStoreConflict, ObjType: entity.ObjType,
							Err: fmt.Errorf("duplicate id during download (stale store?): %w", err)}
					}
					return classify(err)
				}
			}

			if err := tx.Commit(); err != nil {
				return &ReplicationError{Code: CodeStoreIO, Err: err}
			}

			if !page.HasMore {
				break
			}
			cursor = page.NextCursor
		}
		slog.Debug("type downloaded", "type", entity.ObjType, "pages", pages)
	}

	// Final transaction: the run row for an empty account, plus the
	// completion stamp restarts look for.
	tx, err := e.store.Begin(ctx, e.now())
	if err != nil {
		return &ReplicationError{Code: CodeStoreIO, Err: err}
	}
	if first {
		if err := e.recordRun(tx, downloadRunID, runKindDownload); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := e.finishRun(tx, downloadRunID, ""); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return &ReplicationError{Code: CodeStoreIO, Err: err}
	}

	slog.Info("download complete")
	return nil
}

// recordT0 pins the event horizon before the first list call: the id and
// created of the newest visible event. Events older than T0 concerning
// downloaded objects are skipped by the applier.
func (e *Engine) recordT0(ctx context.Context) error {
	page, err := e.client.Events(ctx, "")
	if err != nil {
		return classify(err)
	}
	if len(page.Data) > 0 {
		e.t0ID = page.Data[0].ID
		e.t0Created = page.Data[0].Created
		e.cursor = page.Data[0].ID
	}
	return nil
}

// completeNestedLists finishes truncated embedded child lists by
// synthesizing continuation calls. When the provider offers no
// continuation endpoint for a truncated list the tree writer fails closed
// instead.
func (e *Engine) completeNestedLists(ctx context.Context, entity *schema.Entity, raw json.RawMessage) (json.RawMessage, error) {
	if len(entity.NestedLists) == 0 {
		return raw, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, &ReplicationError{Code: CodeUnexpectedShape, ObjType: entity.ObjType,
			Err: fmt.Errorf("decode object: %w", err)}
	}

	var id string
	if err := json.Unmarshal(obj["id"], &id); err != nil {
		return nil, &ReplicationError{Code: CodeUnexpectedShape, ObjType: entity.ObjType,
			Err: fmt.Errorf("object has no id: %w", err)}
	}

	changed := false
	for _, nl := range entity.NestedLists {
		listRaw, ok := obj[nl.Field]
		if !ok || len(listRaw) == 0 {
			continue
		}

		var envelope struct {
			Data    []json.RawMessage `json:"data"`
			HasMore bool              `json:"has_more"`
		}
		if err := json.Unmarshal(listRaw, &envelope); err != nil || !envelope.HasMore {
			continue
		}

		all := envelope.Data
		cursor := lastID(all)
		for {
			page, err := e.client.List(ctx, fmt.Sprintf(nl.Path, id), cursor, nil)
			if err != nil {
				return nil, classify(err)
			}
			all = append(all, page.Data...)
			if !page.HasMore {
				break
			}
			cursor = page.NextCursor
		}

		merged, err := json.Marshal(map[string]any{
			"object":   "list",
			"data":     all,
			"has_more": false,
		})
		if err != nil {
			return nil, &ReplicationError{Code: CodeUnexpectedShape, ObjType: entity.ObjType, ObjID: id, Err: err}
		}
		obj[nl.Field] = merged
		changed = true
		slog.Debug("completed nested list", "type", entity.ObjType, "id", id, "field", nl.Field, "items", len(all))
	}

	if !changed {
		return raw, nil
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, &ReplicationError{Code: CodeUnexpectedShape, ObjType: entity.ObjType, ObjID: id, Err: err}
	}
	return out, nil
}

func lastID(items []json.RawMessage) string {
	if len(items) == 0 {
		return ""
	}
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(items[len(items)-1], &probe); err != nil {
		return ""
	}
	return probe.ID
}
