package delay

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"crate/internal/release"
	"crate/internal/services"
	"crate/internal/store"
)

// Repository persists delay profiles.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(st *store.Store) *Repository {
	return &Repository{db: st.DB()}
}

type profileRow struct {
	ID                int64  `db:"id"`
	EnableUsenet      int    `db:"enable_usenet"`
	EnableTorrent     int    `db:"enable_torrent"`
	PreferredProtocol string `db:"preferred_protocol"`
	UsenetDelay       int    `db:"usenet_delay"`
	TorrentDelay      int    `db:"torrent_delay"`
	SortOrder         int    `db:"sort_order"`
	TagsJSON          string `db:"tags_json"`
}

// All returns every profile ordered by sort order.
func (r *Repository) All(ctx context.Context) ([]Profile, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "enable_usenet", "enable_torrent", "preferred_protocol", "usenet_delay", "torrent_delay", "sort_order", "tags_json")
	sb.From("delay_profiles")
	sb.OrderBy("sort_order", "id")
	query, args := sb.Build()

	var rows []profileRow
	if err := store.Retry(ctx, func() error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows, query, args...)
	}); err != nil {
		return nil, services.Wrap(services.ErrTransient, "delay", "list", "select delay profiles", err)
	}

	profiles := make([]Profile, 0, len(rows))
	for _, row := range rows {
		protocol, err := release.ParseProtocol(row.PreferredProtocol)
		if err != nil {
			return nil, fmt.Errorf("delay profile %d: %w", row.ID, err)
		}
		profile := Profile{
			ID:                row.ID,
			EnableUsenet:      row.EnableUsenet != 0,
			EnableTorrent:     row.EnableTorrent != 0,
			PreferredProtocol: protocol,
			UsenetDelay:       row.UsenetDelay,
			TorrentDelay:      row.TorrentDelay,
			Order:             row.SortOrder,
		}
		if err := json.Unmarshal([]byte(row.TagsJSON), &profile.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of delay profile %d: %w", row.ID, err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// Add stores a tagged profile, placing it after the existing tagged profiles.
func (r *Repository) Add(ctx context.Context, profile Profile) (Profile, error) {
	if len(profile.Tags) == 0 {
		return profile, services.Wrap(services.ErrValidation, "delay", "add", "non-default delay profiles need at least one tag", nil)
	}
	if !profile.EnableUsenet && !profile.EnableTorrent {
		return profile, services.Wrap(services.ErrValidation, "delay", "add", "at least one protocol must be enabled", nil)
	}
	if profile.UsenetDelay < 0 || profile.TorrentDelay < 0 {
		return profile, services.Wrap(services.ErrValidation, "delay", "add", "delays cannot be negative", nil)
	}
	if profile.PreferredProtocol == "" || profile.PreferredProtocol == release.ProtocolUnknown {
		profile.PreferredProtocol = release.ProtocolUsenet
	}

	existing, err := r.All(ctx)
	if err != nil {
		return profile, err
	}
	profile.Order = 1
	for _, p := range existing {
		if !p.IsDefault() && p.Order >= profile.Order {
			profile.Order = p.Order + 1
		}
	}

	tags := append([]int(nil), profile.Tags...)
	sort.Ints(tags)
	encoded, err := json.Marshal(tags)
	if err != nil {
		return profile, fmt.Errorf("encode tags: %w", err)
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("delay_profiles")
	ib.Cols("enable_usenet", "enable_torrent", "preferred_protocol", "usenet_delay", "torrent_delay", "sort_order", "tags_json")
	ib.Values(store.BoolToInt(profile.EnableUsenet), store.BoolToInt(profile.EnableTorrent), string(profile.PreferredProtocol),
		profile.UsenetDelay, profile.TorrentDelay, profile.Order, string(encoded))
	query, args := ib.Build()

	if err := store.Retry(ctx, func() error {
		res, execErr := r.db.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		profile.ID, execErr = res.LastInsertId()
		return execErr
	}); err != nil {
		return profile, services.Wrap(services.ErrTransient, "delay", "add", "insert delay profile", err)
	}
	profile.Tags = tags
	return profile, nil
}

// UpdateDefault rewrites the delays and preferred protocol of the catch-all
// profile.
func (r *Repository) UpdateDefault(ctx context.Context, profile Profile) error {
	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("delay_profiles")
	ub.Set(
		ub.Assign("enable_usenet", store.BoolToInt(profile.EnableUsenet)),
		ub.Assign("enable_torrent", store.BoolToInt(profile.EnableTorrent)),
		ub.Assign("preferred_protocol", string(profile.PreferredProtocol)),
		ub.Assign("usenet_delay", profile.UsenetDelay),
		ub.Assign("torrent_delay", profile.TorrentDelay),
	)
	ub.Where(ub.Equal("sort_order", DefaultOrder))
	query, args := ub.Build()

	if err := store.Retry(ctx, func() error {
		_, execErr := r.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return services.Wrap(services.ErrTransient, "delay", "update default", "update delay profile", err)
	}
	return nil
}
