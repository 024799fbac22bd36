package catalog

type CatalogService interface {
	List() []Summary
	Get(id string) (*Report, error)
	Search(q string) []Summary
	Grouped(id string) (GroupedFilters, error)
}

type CatalogServiceImpl struct {
	Catalog *Catalog
}

func NewCatalogService(catalog *Catalog) CatalogService {
	return &CatalogServiceImpl{Catalog: catalog}
}

func (s *CatalogServiceImpl) List() []Summary {
	return summarize(s.Catalog.Reports())
}

func (s *CatalogServiceImpl) Get(id string) (*Report, error) {
	return s.Catalog.Get(id)
}

func (s *CatalogServiceImpl) Search(q string) []Summary {
	return summarize(s.Catalog.Search(q))
}

func (s *CatalogServiceImpl) Grouped(id string) (GroupedFilters, error) {
	r, err := s.Catalog.Get(id)
	if err != nil {
		return GroupedFilters{}, err
	}
	return Group(r), nil
}

func summarize(reports []Report) []Summary {
	out := make([]Summary, len(reports))
	for i := range reports {
		out[i] = reports[i].Summary()
	}
	return out
}
