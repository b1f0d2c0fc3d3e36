/*
Package config loads Burrow's host configuration.

Configuration is a single YAML file naming the volume database path and
tuning the logging and lock-retry behavior. There is no mutable global:
Load returns a Config value and callers pass the pieces on explicitly,
so multiple independent database instances can coexist in one process
(as the tests do).

	db_path: /var/lib/burrow/volumes.db
	log:
	  level: info
	  json: false
	retry:
	  max_attempts: 50
	  backoff: 5ms
	  max_backoff: 100ms

Fields absent from the file keep the Default() values.
*/
package config
