package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/01moynul/renovation-mindmap/internal/mindmap"
	"github.com/01moynul/renovation-mindmap/internal/models"
)

const nodeColumns = `id, node_id, name, parent_id, details, image, img_url,
	attachment_url, attachment_name, is_premium, create_user_id, parent_mindMap_id`

// NodeStore serves the rows of the 'nodes' table.
type NodeStore struct {
	DB *sql.DB
}

func NewNodeStore(db *sql.DB) *NodeStore {
	return &NodeStore{DB: db}
}

// ListRecords returns every row in insertion order, ready for the tree builder.
func (s *NodeStore) ListRecords(ctx context.Context) ([]models.FlatRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetNode returns all rows of one logical node (one per detail).
func (s *NodeStore) GetNode(ctx context.Context, nodeID int64) ([]models.FlatRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE node_id = ? ORDER BY id ASC`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("get node %d: %w", nodeID, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

// InsertRecords appends rows inside one transaction. With replace set, the
// table is emptied first so an import fully replaces the mind map.
func (s *NodeStore) InsertRecords(ctx context.Context, records []models.FlatRecord, replace bool) (int, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes`); err != nil {
			return 0, fmt.Errorf("clear nodes: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO nodes
		(node_id, name, parent_id, details, image, img_url, attachment_url, attachment_name, is_premium, create_user_id, parent_mindMap_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i, rec := range records {
		if rec.NodeID == nil {
			continue
		}
		premium := rec.IsPremium != nil && *rec.IsPremium
		if _, err := stmt.ExecContext(ctx,
			*rec.NodeID, rec.Name, nullInt(rec.ParentID), nullString(rec.Details), nullString(rec.Image),
			mindmap.FormatImageList(rec.ImgURL), nullString(rec.AttachmentURL), nullString(rec.AttachmentName),
			premium, nullInt(rec.CreateUserID), nullInt(rec.ParentMindMapID),
		); err != nil {
			return 0, fmt.Errorf("insert row %d (node %d): %w", i, *rec.NodeID, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return inserted, nil
}

func scanRecords(rows *sql.Rows) ([]models.FlatRecord, error) {
	var records []models.FlatRecord
	for rows.Next() {
		var (
			id, nodeID, parentID, createUserID, mindMapID sql.NullInt64
			name                                          string
			details, image, imgURL, attURL, attName       sql.NullString
			premium                                       bool
		)
		if err := rows.Scan(&id, &nodeID, &name, &parentID, &details, &image, &imgURL,
			&attURL, &attName, &premium, &createUserID, &mindMapID); err != nil {
			return nil, fmt.Errorf("scan node row: %w", err)
		}
		records = append(records, models.FlatRecord{
			ID:              intPtr(id),
			NodeID:          intPtr(nodeID),
			Name:            name,
			ParentID:        intPtr(parentID),
			Details:         strPtr(details),
			Image:           strPtr(image),
			ImgURL:          mindmap.ParseImageList(imgURL.String),
			AttachmentURL:   strPtr(attURL),
			AttachmentName:  strPtr(attName),
			IsPremium:       &premium,
			CreateUserID:    intPtr(createUserID),
			ParentMindMapID: intPtr(mindMapID),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate node rows: %w", err)
	}
	return records, nil
}
