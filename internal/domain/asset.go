package domain

// Asset - файл в контентно-адресуемом хранилище
type Asset struct {
	Hash string
	Name string
	Size int64
	URL  string
}

// ShortHash используется в логах
func (a *Asset) ShortHash() string {
	if len(a.Hash) < 8 {
		return a.Hash
	}
	return a.Hash[:8]
}
