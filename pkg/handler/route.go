package handler

// Route type
type Route string

const (
	// RouteSitemap sitemap.xml below the site root
	RouteSitemap Route = "sitemap"
	// RouteSitemapLanguage sitemap.xml below a language segment
	RouteSitemapLanguage Route = "sitemapLanguage"
	// RouteSitemapPath sitemap.xml below any other path
	RouteSitemapPath Route = "sitemapPath"

	// RouteGetConfigs list sitemap configs
	RouteGetConfigs Route = "getConfigs"
	// RouteSaveConfig create or replace a sitemap config
	RouteSaveConfig Route = "saveConfig"
	// RouteDeleteConfig delete a sitemap config
	RouteDeleteConfig Route = "deleteConfig"
	// RouteGenerate run the generation job
	RouteGenerate Route = "generate"
	// RouteStop stop a running generation job
	RouteStop Route = "stop"
	// RouteUpdate update the content repo
	RouteUpdate Route = "update"
	// RouteGetContent get the whole content export
	RouteGetContent Route = "getContent"
)
