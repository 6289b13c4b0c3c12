// Package server provides the HTTP front end of the policy server: the
// evaluation endpoint, health checking and the Prometheus metrics endpoint.
package server
