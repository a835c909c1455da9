package store

import (
	"context"
	"os"
)

// Stats holds workspace statistics.
type Stats struct {
	DBPath      string `json:"db_path,omitempty"`
	DBSizeBytes int64  `json:"db_size_bytes,omitempty"`
	Driver      string `json:"driver"`
	Nodesets    int    `json:"nodesets"`
	TotalNodes  int    `json:"total_nodes"`
	Namespaces  int    `json:"namespaces"`
	Checksums   int    `json:"distinct_checksums"`
}

// Stats returns workspace statistics.
func (s *SQLStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DBPath: s.path, Driver: s.driver}

	if s.path != "" {
		if info, err := os.Stat(s.path); err == nil {
			st.DBSizeBytes = info.Size()
		}
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(node_count), 0), COUNT(DISTINCT checksum) FROM nodesets`).
		Scan(&st.Nodesets, &st.TotalNodes, &st.Checksums)
	if err != nil {
		return st, err
	}

	list, err := s.ListNodesets(ctx)
	if err != nil {
		return st, err
	}
	uris := make(map[string]struct{})
	for _, m := range list {
		for _, ns := range m.Namespaces {
			uris[ns.URI] = struct{}{}
		}
	}
	st.Namespaces = len(uris)
	return st, nil
}
