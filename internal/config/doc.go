// Package config loads the navrouter CLI configuration.
//
// The configuration is stored in navrouter.json. Every field is optional;
// missing values take the defaults shown below.
//
// # Configuration File Structure
//
//	{
//	  "routes": "routes.yaml",
//	  "baseURL": "http://localhost/",
//	  "parse": "lower",
//	  "maxRedirects": 16,
//	  "serve": {
//	    "addr": ":8080",
//	    "wsPath": "/ws",
//	    "metricsPath": "/metrics",
//	    "allowedOrigins": ["https://app.example.com"]
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "s3": {
//	    "region": "us-east-1",
//	    "endpoint": "http://localhost:9000",
//	    "pathStyle": true
//	  }
//	}
//
// routes names the route manifest: a local path (relative paths resolve
// against the config file's directory) or an s3://bucket/key URL. parse
// selects how the active path is derived from a URL: "lower" (lower-cased
// path), "canonical" (canonicalized, then lower-cased) or "exact".
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r := router.New(router.WithParseURL(cfg.ParseFunc()))
package config
