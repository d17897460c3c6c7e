package extract

import (
	"reflect"

	"github.com/fwojciec/carlot"
)

// ExtractFromElement runs a coarse pass over the element's whole text and a
// fine pass over each descendant whose tag is in the fine-tag set. Within
// the fine pass the first descendant to yield a field keeps it. Fine values
// override coarse ones. Harvested photos are stored under
// carlot.FieldImageURLs. A panic raised by the node implementation yields an
// empty map.
func (e *Extractor) ExtractFromElement(el carlot.Node, pageURL string) (fields carlot.FieldMap) {
	defer func() {
		if r := recover(); r != nil {
			fields = carlot.FieldMap{}
		}
	}()
	return e.extractFromElement(el, pageURL, nil)
}

func (e *Extractor) extractFromElement(el carlot.Node, pageURL string, memo textMemo) carlot.FieldMap {
	if el == nil {
		return carlot.FieldMap{}
	}

	coarse := memo.fields(e, el)

	fine := carlot.FieldMap{}
	for _, child := range el.Children() {
		carlot.Walk(child, func(n carlot.Node) bool {
			if !e.fineTags[n.Tag()] {
				return true
			}
			for f, v := range memo.fields(e, n) {
				if _, ok := fine[f]; !ok {
					fine[f] = v
				}
			}
			return true
		})
	}

	fields := coarse.Merge(fine)
	if e.harvester != nil {
		if urls := e.harvester.HarvestImages(el, pageURL); len(urls) > 0 {
			fields[carlot.FieldImageURLs] = carlot.URLsValue(urls)
		}
	}
	return fields
}

// textMemo caches per-node text extraction during one page scan, where the
// same descendant is visited once for every enclosing container. A nil memo
// disables caching.
type textMemo map[carlot.Node]carlot.FieldMap

func (m textMemo) fields(e *Extractor, n carlot.Node) carlot.FieldMap {
	if m == nil || !reflect.TypeOf(n).Comparable() {
		return e.ExtractFields(n.Text())
	}
	if f, ok := m[n]; ok {
		return f
	}
	f := e.ExtractFields(n.Text())
	m[n] = f
	return f
}
