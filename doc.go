// Package docsearch maps typed documents onto a full-text search platform.
//
// A document.Schema declares typed fields. An Index puts, gets and deletes
// documents of that schema on a platform.Client, and Search returns a
// SearchQuery: an immutable builder of keywords, filters, sorts and snippets
// that runs lazily, caches its results and can be sliced into windows.
//
//	idx, _ := docsearch.NewIndex("films", client, docsearch.WithSchema(films))
//	q, _ := idx.Search()
//	q = q.Keywords("bruce willis").Where("genre", "action").OrderBy("-year")
//	page, _ := q.Slice(nil, ptr(20))
//	for it := page.Iter(ctx); it.Next(); {
//		fmt.Println(it.Doc().DocID())
//	}
package docsearch
