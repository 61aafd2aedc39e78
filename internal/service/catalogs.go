package service

import "github.com/Sentinel-Gate/irisgate/internal/domain/catalog"

// ListTypes returns the catalog named kind. Friendly aliases such as "ioc"
// or "tlp" are accepted. Catalogs are static, so no session is opened.
func (s *Service) ListTypes(kind string) ([]catalog.Entry, error) {
	return s.catalogs.Lookup(kind)
}

// Catalogs lists the canonical catalog names.
func (s *Service) Catalogs() []string {
	return s.catalogs.Names()
}
