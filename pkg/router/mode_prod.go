//go:build navrouter_production

package router

// productionBuild relaxes Href when no router can be found. See Href.
const productionBuild = true
