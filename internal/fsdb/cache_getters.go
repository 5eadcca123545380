package fsdb

import "github.com/mbuesch/go-cms/internal/ident"

// GetPage returns id's page content, using the cache.
func (c *Cache) GetPage(id ident.CheckedIdent) ([]byte, error) {
	v, err := getCached(c, cacheKey{kind: keyPage, ident: id.Downgrade().String()}, func() (cacheValue, error) {
		b, err := c.fs.GetPage(id)

		return cacheValue{blob: b}, err
	})

	return v.blob, err
}

// GetPageRedirect returns id's redirect target, using the cache.
func (c *Cache) GetPageRedirect(id ident.CheckedIdent) (string, error) {
	v, err := getCached(c, cacheKey{kind: keyPageRedirect, ident: id.Downgrade().String()}, func() (cacheValue, error) {
		s, err := c.fs.GetPageRedirect(id)

		return cacheValue{str: s}, err
	})

	return v.str, err
}

// GetPageTitle returns id's title, using the cache.
func (c *Cache) GetPageTitle(id ident.CheckedIdent) (string, error) {
	v, err := getCached(c, cacheKey{kind: keyPageTitle, ident: id.Downgrade().String()}, func() (cacheValue, error) {
		s, err := c.fs.GetPageTitle(id)

		return cacheValue{str: s}, err
	})

	return v.str, err
}

// GetPageStamp returns id's content mtime, using the cache.
func (c *Cache) GetPageStamp(id ident.CheckedIdent) (uint64, error) {
	v, err := getCached(c, cacheKey{kind: keyPageStamp, ident: id.Downgrade().String()}, func() (cacheValue, error) {
		n, err := c.fs.GetPageStamp(id)

		return cacheValue{u64: n}, err
	})

	return v.u64, err
}

// GetPagePrio returns id's nav-sort priority, using the cache.
func (c *Cache) GetPagePrio(id ident.CheckedIdent) (uint64, error) {
	v, err := getCached(c, cacheKey{kind: keyPagePrio, ident: id.Downgrade().String()}, func() (cacheValue, error) {
		n, err := c.fs.GetPagePrio(id)

		return cacheValue{u64: n}, err
	})

	return v.u64, err
}

// GetSubPages returns id's visible children, using the cache.
func (c *Cache) GetSubPages(id ident.CheckedIdent) ([]PageInfo, error) {
	v, err := getCached(c, cacheKey{kind: keySubPages, ident: id.Downgrade().String()}, func() (cacheValue, error) {
		p, err := c.fs.GetSubPages(id)

		return cacheValue{subPages: p}, err
	})

	return v.subPages, err
}

// GetPageNavStop returns whether nav-tree descent stops at id, using the cache.
func (c *Cache) GetPageNavStop(id ident.CheckedIdent) (bool, error) {
	v, err := getCached(c, cacheKey{kind: keyNavStop, ident: id.Downgrade().String()}, func() (cacheValue, error) {
		b, err := c.fs.GetPageNavStop(id)

		return cacheValue{boolean: b}, err
	})

	return v.boolean, err
}

// GetPageNavLabel returns id's nav label, using the cache.
func (c *Cache) GetPageNavLabel(id ident.CheckedIdent) (string, error) {
	v, err := getCached(c, cacheKey{kind: keyNavLabel, ident: id.Downgrade().String()}, func() (cacheValue, error) {
		s, err := c.fs.GetPageNavLabel(id)

		return cacheValue{str: s}, err
	})

	return v.str, err
}

// GetMacro resolves a macro call relative to id, using the cache.
func (c *Cache) GetMacro(id ident.CheckedIdent, name ident.CheckedIdentElem) ([]byte, error) {
	key := cacheKey{kind: keyMacro, ident: id.Downgrade().String(), extra: name.Downgrade().String()}
	v, err := getCached(c, key, func() (cacheValue, error) {
		b, err := c.fs.GetMacro(id, name)

		return cacheValue{blob: b}, err
	})

	return v.blob, err
}

// GetString returns a global string resource, using the cache.
func (c *Cache) GetString(name ident.CheckedIdentElem) ([]byte, error) {
	v, err := getCached(c, cacheKey{kind: keyString, ident: name.Downgrade().String()}, func() (cacheValue, error) {
		b, err := c.fs.GetString(name)

		return cacheValue{blob: b}, err
	})

	return v.blob, err
}

// GetImage returns a global image resource, using the cache.
func (c *Cache) GetImage(name ident.CheckedIdentElem) ([]byte, error) {
	v, err := getCached(c, cacheKey{kind: keyImage, ident: name.Downgrade().String()}, func() (cacheValue, error) {
		b, err := c.fs.GetImage(name)

		return cacheValue{blob: b}, err
	})

	return v.blob, err
}

// GetHeaders returns id's concatenated ancestor header markup, using the cache.
func (c *Cache) GetHeaders(id ident.CheckedIdent) ([]byte, error) {
	v, err := getCached(c, cacheKey{kind: keyHeaders, ident: id.Downgrade().String()}, func() (cacheValue, error) {
		b, err := c.fs.GetHeaders(id)

		return cacheValue{blob: b}, err
	})

	return v.blob, err
}
