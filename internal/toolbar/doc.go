// Package toolbar aggregates the in-page CMS toolbar for one request.
//
// Applications register sub-toolbar factories in a Pool at process start. For
// each request the Middleware builds a Toolbar, which instantiates every
// registered sub-toolbar and dispatches lifecycle hooks to them:
//
//	request_hook           - before the view; may answer the request
//	populate               - once, the first time items are read or added
//	post_template_populate - once, after the page has been rendered
//
// The two core sub-toolbars (BasicToolbarKey, PlaceholderToolbarKey) always
// run first; the rest follow in registration order. A hook that returns a
// non-nil http.Handler stops the dispatch.
//
// Items live on two ordered lists, one per Side. Only staff users get a
// populated toolbar.
package toolbar
