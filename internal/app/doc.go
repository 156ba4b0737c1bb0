// Package app provides the application service layer.
//
// Gateway turns control-API requests into PackageManager calls: directory
// listing, launches, uninstall and install requests. Stager owns the scratch
// directory for uploaded archives, Sweeper expires it, and Supervisor keeps the
// HTTP server running under a bounded restart policy.
package app
