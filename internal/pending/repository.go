package pending

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"crate/internal/services"
	"crate/internal/store"
)

// SQLRepository stores pending releases in the pending_releases table.
// ParsedAlbumInfo, Release and AdditionalInfo are JSON columns.
type SQLRepository struct {
	db *sqlx.DB
}

func NewSQLRepository(st *store.Store) *SQLRepository {
	return &SQLRepository{db: st.DB()}
}

var releaseColumns = []string{"id", "artist_id", "title", "added", "parsed_album_info", "release_info", "reason", "additional_info"}

type releaseRow struct {
	ID              int64          `db:"id"`
	ArtistID        int64          `db:"artist_id"`
	Title           string         `db:"title"`
	Added           string         `db:"added"`
	ParsedAlbumInfo string         `db:"parsed_album_info"`
	ReleaseInfo     string         `db:"release_info"`
	Reason          string         `db:"reason"`
	AdditionalInfo  sql.NullString `db:"additional_info"`
}

func (row releaseRow) release() (Release, error) {
	r := Release{
		ID:       row.ID,
		ArtistID: row.ArtistID,
		Title:    row.Title,
		Reason:   Reason(row.Reason),
	}
	if !r.Reason.Valid() {
		return r, fmt.Errorf("pending release %d has unknown reason %q", row.ID, row.Reason)
	}
	added, err := store.ParseTime(row.Added)
	if err != nil {
		return r, fmt.Errorf("pending release %d added: %w", row.ID, err)
	}
	r.Added = added
	if err := json.Unmarshal([]byte(row.ParsedAlbumInfo), &r.ParsedAlbumInfo); err != nil {
		return r, fmt.Errorf("decode parsed info of pending release %d: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.ReleaseInfo), &r.Release); err != nil {
		return r, fmt.Errorf("decode release of pending release %d: %w", row.ID, err)
	}
	if row.AdditionalInfo.Valid && row.AdditionalInfo.String != "" {
		if err := json.Unmarshal([]byte(row.AdditionalInfo.String), &r.AdditionalInfo); err != nil {
			return r, fmt.Errorf("decode additional info of pending release %d: %w", row.ID, err)
		}
	}
	return r, nil
}

func encodeRelease(r *Release) (parsed, info, additional string, err error) {
	parsedJSON, err := json.Marshal(r.ParsedAlbumInfo)
	if err != nil {
		return "", "", "", fmt.Errorf("encode parsed info: %w", err)
	}
	infoJSON, err := json.Marshal(r.Release)
	if err != nil {
		return "", "", "", fmt.Errorf("encode release: %w", err)
	}
	additionalJSON, err := json.Marshal(r.AdditionalInfo)
	if err != nil {
		return "", "", "", fmt.Errorf("encode additional info: %w", err)
	}
	return string(parsedJSON), string(infoJSON), string(additionalJSON), nil
}

func (s *SQLRepository) selectReleases(ctx context.Context, sb *sqlbuilder.SelectBuilder, operation string) ([]Release, error) {
	sb.OrderBy("id")
	query, args := sb.Build()

	var rows []releaseRow
	if err := store.Retry(ctx, func() error {
		rows = rows[:0]
		return s.db.SelectContext(ctx, &rows, query, args...)
	}); err != nil {
		return nil, services.Wrap(services.ErrTransient, "pending", operation, "select pending releases", err)
	}
	releases := make([]Release, 0, len(rows))
	for _, row := range rows {
		r, err := row.release()
		if err != nil {
			return nil, err
		}
		releases = append(releases, r)
	}
	return releases, nil
}

func newReleaseSelect() *sqlbuilder.SelectBuilder {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(releaseColumns...)
	sb.From("pending_releases")
	return sb
}

// All returns every pending release in id order.
func (s *SQLRepository) All(ctx context.Context) ([]Release, error) {
	return s.selectReleases(ctx, newReleaseSelect(), "all")
}

// AllByArtistID returns one artist's pending releases in id order.
func (s *SQLRepository) AllByArtistID(ctx context.Context, artistID int64) ([]Release, error) {
	sb := newReleaseSelect()
	sb.Where(sb.Equal("artist_id", artistID))
	return s.selectReleases(ctx, sb, "all by artist")
}

// AllExcludingReason returns every pending release not held for reason.
func (s *SQLRepository) AllExcludingReason(ctx context.Context, reason Reason) ([]Release, error) {
	sb := newReleaseSelect()
	sb.Where(sb.NotEqual("reason", string(reason)))
	return s.selectReleases(ctx, sb, "all excluding reason")
}

// Insert stores r and assigns its id.
func (s *SQLRepository) Insert(ctx context.Context, r *Release) error {
	if r == nil {
		return services.Wrap(services.ErrValidation, "pending", "insert", "release is required", nil)
	}
	if !r.Reason.Valid() {
		return services.Wrap(services.ErrValidation, "pending", "insert", fmt.Sprintf("unknown reason %q", r.Reason), nil)
	}
	parsed, info, additional, err := encodeRelease(r)
	if err != nil {
		return err
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("pending_releases")
	ib.Cols("artist_id", "title", "added", "parsed_album_info", "release_info", "reason", "additional_info")
	ib.Values(r.ArtistID, r.Title, store.FormatTime(r.Added), parsed, info, string(r.Reason), additional)
	query, args := ib.Build()

	return s.exec(ctx, "insert", query, args, func(res sql.Result) error {
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		r.ID = id
		return nil
	})
}

// Update rewrites every persisted field of r.
func (s *SQLRepository) Update(ctx context.Context, r *Release) error {
	if r == nil || r.ID == 0 {
		return services.Wrap(services.ErrValidation, "pending", "update", "release id is required", nil)
	}
	if !r.Reason.Valid() {
		return services.Wrap(services.ErrValidation, "pending", "update", fmt.Sprintf("unknown reason %q", r.Reason), nil)
	}
	parsed, info, additional, err := encodeRelease(r)
	if err != nil {
		return err
	}

	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("pending_releases")
	ub.Set(
		ub.Assign("artist_id", r.ArtistID),
		ub.Assign("title", r.Title),
		ub.Assign("added", store.FormatTime(r.Added)),
		ub.Assign("parsed_album_info", parsed),
		ub.Assign("release_info", info),
		ub.Assign("reason", string(r.Reason)),
		ub.Assign("additional_info", additional),
	)
	ub.Where(ub.Equal("id", r.ID))
	query, args := ub.Build()

	return s.exec(ctx, "update", query, args, nil)
}

// Delete removes one release. Unknown ids are ignored.
func (s *SQLRepository) Delete(ctx context.Context, id int64) error {
	return s.DeleteMany(ctx, []int64{id})
}

// DeleteMany removes the given releases. Unknown ids are ignored.
func (s *SQLRepository) DeleteMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	del := sqlbuilder.SQLite.NewDeleteBuilder()
	del.DeleteFrom("pending_releases")
	del.Where(del.In("id", store.Int64Args(ids)...))
	query, args := del.Build()
	return s.exec(ctx, "delete", query, args, nil)
}

// DeleteByArtistIDs removes every release owned by the given artists and
// returns how many rows went.
func (s *SQLRepository) DeleteByArtistIDs(ctx context.Context, artistIDs []int64) (int64, error) {
	if len(artistIDs) == 0 {
		return 0, nil
	}
	del := sqlbuilder.SQLite.NewDeleteBuilder()
	del.DeleteFrom("pending_releases")
	del.Where(del.In("artist_id", store.Int64Args(artistIDs)...))
	query, args := del.Build()

	var deleted int64
	err := s.exec(ctx, "delete by artist", query, args, func(res sql.Result) error {
		n, err := res.RowsAffected()
		deleted = n
		return err
	})
	return deleted, err
}

func (s *SQLRepository) exec(ctx context.Context, operation, query string, args []any, inspect func(sql.Result) error) error {
	err := store.Retry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		if inspect != nil {
			return inspect(res)
		}
		return nil
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "pending", operation, "write pending release", err)
	}
	return nil
}
