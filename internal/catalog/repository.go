package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"crate/internal/logging"
	"crate/internal/quality"
	"crate/internal/services"
	"crate/internal/store"
	"crate/internal/textutil"
)

// Repository persists artists, albums and quality profiles.
type Repository struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewRepository creates a catalog repository over the shared store.
func NewRepository(st *store.Store, logger *slog.Logger) *Repository {
	return &Repository{
		db:     st.DB(),
		logger: logging.NewComponentLogger(logger, "catalog"),
		now:    time.Now,
	}
}

func wrapStore(operation, message string, err error) error {
	return services.Wrap(services.ErrTransient, "catalog", operation, message, err)
}

// AddQualityProfile stores a profile and returns it with its id.
func (r *Repository) AddQualityProfile(ctx context.Context, profile quality.Profile) (quality.Profile, error) {
	if strings.TrimSpace(profile.Name) == "" {
		return profile, services.Wrap(services.ErrValidation, "catalog", "add profile", "name is required", nil)
	}
	if err := profile.Validate(); err != nil {
		return profile, services.Wrap(services.ErrValidation, "catalog", "add profile", "invalid items", err)
	}
	items, err := json.Marshal(profile.Items)
	if err != nil {
		return profile, fmt.Errorf("encode profile items: %w", err)
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("quality_profiles")
	ib.Cols("name", "cutoff", "upgrade_allowed", "items_json")
	ib.Values(profile.Name, profile.Cutoff, store.BoolToInt(profile.UpgradeAllowed), string(items))
	query, args := ib.Build()

	var res sql.Result
	if err := store.Retry(ctx, func() error {
		var execErr error
		res, execErr = r.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return profile, wrapStore("add profile", "insert quality profile", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return profile, wrapStore("add profile", "read profile id", err)
	}
	profile.ID = id
	return profile, nil
}

// EnsureDefaultQualityProfile returns the first stored profile, seeding the
// default profile when none exist.
func (r *Repository) EnsureDefaultQualityProfile(ctx context.Context) (quality.Profile, error) {
	profiles, err := r.QualityProfiles(ctx)
	if err != nil {
		return quality.Profile{}, err
	}
	if len(profiles) > 0 {
		return profiles[0], nil
	}
	r.logger.Info("seeding default quality profile")
	return r.AddQualityProfile(ctx, quality.DefaultProfile(""))
}

// QualityProfiles lists all profiles ordered by id.
func (r *Repository) QualityProfiles(ctx context.Context) ([]quality.Profile, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(profileColumns...)
	sb.From("quality_profiles")
	sb.OrderBy("id")
	return r.selectProfiles(ctx, sb)
}

func (r *Repository) profilesByIDs(ctx context.Context, ids []int64) (map[int64]quality.Profile, error) {
	if len(ids) == 0 {
		return map[int64]quality.Profile{}, nil
	}
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(profileColumns...)
	sb.From("quality_profiles")
	sb.Where(sb.In("id", store.Int64Args(ids)...))
	profiles, err := r.selectProfiles(ctx, sb)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]quality.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	return byID, nil
}

func (r *Repository) selectProfiles(ctx context.Context, sb *sqlbuilder.SelectBuilder) ([]quality.Profile, error) {
	query, args := sb.Build()
	var rows []profileRow
	if err := store.Retry(ctx, func() error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows, query, args...)
	}); err != nil {
		return nil, wrapStore("list profiles", "select quality profiles", err)
	}
	profiles := make([]quality.Profile, 0, len(rows))
	for _, row := range rows {
		profile := quality.Profile{
			ID:             row.ID,
			Name:           row.Name,
			Cutoff:         row.Cutoff,
			UpgradeAllowed: row.UpgradeAllowed != 0,
		}
		if err := json.Unmarshal([]byte(row.ItemsJSON), &profile.Items); err != nil {
			return nil, fmt.Errorf("decode items of quality profile %d: %w", row.ID, err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// AddArtist inserts an artist. The clean name must be unique.
func (r *Repository) AddArtist(ctx context.Context, artist Artist) (Artist, error) {
	artist.Name = strings.TrimSpace(artist.Name)
	if artist.Name == "" {
		return artist, services.Wrap(services.ErrValidation, "catalog", "add artist", "name is required", nil)
	}
	if artist.QualityProfileID == 0 {
		return artist, services.Wrap(services.ErrValidation, "catalog", "add artist", "quality profile is required", nil)
	}
	artist.CleanName = textutil.CleanTitle(artist.Name)
	if artist.Added.IsZero() {
		artist.Added = r.now().UTC()
	}
	tags, err := encodeTags(artist.Tags)
	if err != nil {
		return artist, err
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("artists")
	ib.Cols("name", "clean_name", "quality_profile_id", "tags_json", "monitored", "added_at")
	ib.Values(artist.Name, artist.CleanName, artist.QualityProfileID, tags, store.BoolToInt(artist.Monitored), store.FormatTime(artist.Added))
	query, args := ib.Build()

	var res sql.Result
	if err := store.Retry(ctx, func() error {
		var execErr error
		res, execErr = r.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return artist, services.Wrap(services.ErrValidation, "catalog", "add artist", fmt.Sprintf("artist %q already exists", artist.Name), err)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return artist, services.Wrap(services.ErrValidation, "catalog", "add artist", fmt.Sprintf("quality profile %d does not exist", artist.QualityProfileID), err)
		}
		return artist, wrapStore("add artist", "insert artist", err)
	}
	if artist.ID, err = res.LastInsertId(); err != nil {
		return artist, wrapStore("add artist", "read artist id", err)
	}

	profiles, err := r.profilesByIDs(ctx, []int64{artist.QualityProfileID})
	if err != nil {
		return artist, err
	}
	artist.QualityProfile = profiles[artist.QualityProfileID]
	r.logger.Info("artist added", logging.Int64(logging.FieldArtistID, artist.ID), logging.String("name", artist.Name))
	return artist, nil
}

// GetByIDs returns the artists with the given ids, each with its quality
// profile loaded. Unknown ids are skipped.
func (r *Repository) GetByIDs(ctx context.Context, ids []int64) ([]Artist, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(artistColumns...)
	sb.From("artists")
	sb.Where(sb.In("id", store.Int64Args(ids)...))
	sb.OrderBy("id")
	return r.selectArtists(ctx, sb)
}

// GetByID returns one artist or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id int64) (Artist, error) {
	artists, err := r.GetByIDs(ctx, []int64{id})
	if err != nil {
		return Artist{}, err
	}
	if len(artists) == 0 {
		return Artist{}, services.Wrap(services.ErrNotFound, "catalog", "get artist", fmt.Sprintf("artist %d not found", id), nil)
	}
	return artists[0], nil
}

// Artists lists every artist ordered by name.
func (r *Repository) Artists(ctx context.Context) ([]Artist, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(artistColumns...)
	sb.From("artists")
	sb.OrderBy("clean_name")
	return r.selectArtists(ctx, sb)
}

func (r *Repository) selectArtists(ctx context.Context, sb *sqlbuilder.SelectBuilder) ([]Artist, error) {
	query, args := sb.Build()
	var rows []artistRow
	if err := store.Retry(ctx, func() error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows, query, args...)
	}); err != nil {
		return nil, wrapStore("list artists", "select artists", err)
	}

	profileIDs := make([]int64, 0, len(rows))
	seen := map[int64]bool{}
	for _, row := range rows {
		if !seen[row.QualityProfileID] {
			seen[row.QualityProfileID] = true
			profileIDs = append(profileIDs, row.QualityProfileID)
		}
	}
	profiles, err := r.profilesByIDs(ctx, profileIDs)
	if err != nil {
		return nil, err
	}

	artists := make([]Artist, 0, len(rows))
	for _, row := range rows {
		artist := Artist{
			ID:               row.ID,
			Name:             row.Name,
			CleanName:        row.CleanName,
			QualityProfileID: row.QualityProfileID,
			QualityProfile:   profiles[row.QualityProfileID],
			Monitored:        row.Monitored != 0,
		}
		if err := json.Unmarshal([]byte(row.TagsJSON), &artist.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of artist %d: %w", row.ID, err)
		}
		if added, err := store.ParseTime(row.AddedAt); err == nil {
			artist.Added = added
		}
		artists = append(artists, artist)
	}
	return artists, nil
}

// DeleteArtists removes artists and their albums. Returns the number of
// artists deleted.
func (r *Repository) DeleteArtists(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	albums := sqlbuilder.SQLite.NewDeleteBuilder()
	albums.DeleteFrom("albums")
	albums.Where(albums.In("artist_id", store.Int64Args(ids)...))
	albumQuery, albumArgs := albums.Build()

	artists := sqlbuilder.SQLite.NewDeleteBuilder()
	artists.DeleteFrom("artists")
	artists.Where(artists.In("id", store.Int64Args(ids)...))
	artistQuery, artistArgs := artists.Build()

	var deleted int64
	err := store.Retry(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, albumQuery, albumArgs...); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, artistQuery, artistArgs...)
		if err != nil {
			return err
		}
		if deleted, err = res.RowsAffected(); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, wrapStore("delete artists", "delete artists", err)
	}
	return deleted, nil
}

// AddAlbum inserts an album for an existing artist.
func (r *Repository) AddAlbum(ctx context.Context, album Album) (Album, error) {
	album.Title = strings.TrimSpace(album.Title)
	if album.Title == "" {
		return album, services.Wrap(services.ErrValidation, "catalog", "add album", "title is required", nil)
	}
	if _, err := r.GetByID(ctx, album.ArtistID); err != nil {
		return album, err
	}
	album.CleanTitle = textutil.CleanTitle(album.Title)

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("albums")
	ib.Cols("artist_id", "title", "clean_title", "release_date", "monitored")
	ib.Values(album.ArtistID, album.Title, album.CleanTitle, store.NullableString(album.ReleaseDate), store.BoolToInt(album.Monitored))
	query, args := ib.Build()

	var res sql.Result
	if err := store.Retry(ctx, func() error {
		var execErr error
		res, execErr = r.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return album, wrapStore("add album", "insert album", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return album, wrapStore("add album", "read album id", err)
	}
	album.ID = id
	return album, nil
}

// AlbumsByArtistID lists an artist's albums ordered by id.
func (r *Repository) AlbumsByArtistID(ctx context.Context, artistID int64) ([]Album, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(albumColumns...)
	sb.From("albums")
	sb.Where(sb.Equal("artist_id", artistID))
	sb.OrderBy("id")
	return r.selectAlbums(ctx, sb)
}

// AlbumsByIDs returns the albums with the given ids in id order.
func (r *Repository) AlbumsByIDs(ctx context.Context, ids []int64) ([]Album, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(albumColumns...)
	sb.From("albums")
	sb.Where(sb.In("id", store.Int64Args(ids)...))
	sb.OrderBy("id")
	return r.selectAlbums(ctx, sb)
}

func (r *Repository) selectAlbums(ctx context.Context, sb *sqlbuilder.SelectBuilder) ([]Album, error) {
	query, args := sb.Build()
	var rows []albumRow
	if err := store.Retry(ctx, func() error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows, query, args...)
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapStore("list albums", "select albums", err)
	}
	albums := make([]Album, 0, len(rows))
	for _, row := range rows {
		album := Album{
			ID:         row.ID,
			ArtistID:   row.ArtistID,
			Title:      row.Title,
			CleanTitle: row.CleanTitle,
			Monitored:  row.Monitored != 0,
		}
		if row.ReleaseDate != nil {
			album.ReleaseDate = *row.ReleaseDate
		}
		albums = append(albums, album)
	}
	return albums, nil
}

func encodeTags(tags []int) (string, error) {
	sorted := make([]int, len(tags))
	copy(sorted, tags)
	sort.Ints(sorted)
	data, err := json.Marshal(sorted)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(data), nil
}
