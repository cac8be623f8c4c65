package mock

import "github.com/fwojciec/finstmt"

var _ finstmt.Fragment = (*Fragment)(nil)

// Fragment is a mock implementation of finstmt.Fragment.
type Fragment struct {
	CaptionFn          func() (string, bool)
	InnerHeadingFn     func() (string, bool)
	PrecedingHeadingFn func() (string, bool)
	HeaderSectionFn    func() ([]finstmt.Row, bool)
	BodySectionFn      func() ([]finstmt.Row, bool)
	RowsFn             func() []finstmt.Row
}

func (f *Fragment) Caption() (string, bool) {
	return f.CaptionFn()
}

func (f *Fragment) InnerHeading() (string, bool) {
	return f.InnerHeadingFn()
}

func (f *Fragment) PrecedingHeading() (string, bool) {
	return f.PrecedingHeadingFn()
}

func (f *Fragment) HeaderSection() ([]finstmt.Row, bool) {
	return f.HeaderSectionFn()
}

func (f *Fragment) BodySection() ([]finstmt.Row, bool) {
	return f.BodySectionFn()
}

func (f *Fragment) Rows() []finstmt.Row {
	return f.RowsFn()
}
