// Package config handles configuration loading for cms-toolbar.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file (chosen by extension),
// expanded against the environment, overridden field by field from
// CMS_TOOLBAR_* variables and validated. Omitted fields keep the values
// returned by Defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from CMS_TOOLBAR_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/cms-toolbar/config.yaml
//  3. ~/.config/cms-toolbar/config.yaml
//
// # Environment Variable Expansion
//
//	database:
//	  path: "${CMS_DATA}/toolbar.db"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string.
//
// # Environment Overrides
//
// After the file is parsed, variables named CMS_TOOLBAR_<SECTION>_<FIELD>
// replace individual values:
//
//	CMS_TOOLBAR_SERVER_HTTP_ADDR=0.0.0.0:8080
//	CMS_TOOLBAR_I18N_LANGUAGES=en,de,fr
//	CMS_TOOLBAR_TOOLBAR_ENABLED=cms.cms_toolbar.BasicToolbar,blog.cms_toolbar.BlogToolbar
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:8000"
//	database:
//	  path: "/var/lib/cms-toolbar/toolbar.db"
//	session:
//	  cookie_name: "cms_session"
//	  duration: "336h"
//	i18n:
//	  use_i18n: true
//	  language_code: "en"
//	  languages: ["en", "de"]
//	toolbar:
//	  enabled: []            # empty: every registered sub-toolbar
//	  edit_on_param: "edit"
//	  edit_off_param: "edit_off"
//	  build_param: "build"
//	logging:
//	  level: "info"          # debug, info, warn, error
//	  format: "text"         # text, json, color
//	metrics:
//	  enabled: false
//	  path: "/metrics"
package config
