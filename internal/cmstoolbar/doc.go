// Package cmstoolbar provides the two core sub-toolbars every installation
// registers: BasicToolbar (site and language menus) and PlaceholderToolbar
// (mode switcher and clipboard).
package cmstoolbar
