package page

import (
	"github.com/hupe1980/pagelog/pageid"
)

// Page holds the messages of one PageID.
type Page struct {
	unit
	id pageid.PageID
}

// New returns an empty page.
func New(id pageid.PageID, opts ...Option) *Page {
	o := applyOptions(opts)
	o.logger = o.logger.With("page", int64(id))

	p := &Page{id: id}
	p.init(id.FirstMessageID(), id.LastMessageID(), o)
	return p
}

// ID returns the page id.
func (p *Page) ID() pageid.PageID { return p.id }

// Info returns a diagnostic snapshot.
func (p *Page) Info() Info { return p.info(int64(p.id)) }

// SubPage holds the messages of one SubPageID.
type SubPage struct {
	unit
	id pageid.SubPageID
}

// NewSubPage returns an empty sub-page.
func NewSubPage(id pageid.SubPageID, opts ...Option) *SubPage {
	o := applyOptions(opts)
	o.logger = o.logger.With("sub_page", int64(id))

	s := &SubPage{id: id}
	s.init(id.FirstMessageID(), id.LastMessageID(), o)
	return s
}

// ID returns the sub-page id.
func (s *SubPage) ID() pageid.SubPageID { return s.id }

// PageID returns the page owning the sub-page.
func (s *SubPage) PageID() pageid.PageID { return s.id.PageID() }

// Info returns a diagnostic snapshot.
func (s *SubPage) Info() Info { return s.info(int64(s.id)) }
