// Package config loads the settings a process needs to pick and run an
// async runtime.
//
// Values come from, in increasing order of precedence:
//
//   - the defaults returned by Default;
//   - a YAML file, when loaded with LoadFile;
//   - `.env` files, loaded with `github.com/joho/godotenv` into the process
//     environment without overriding variables that are already set;
//   - environment variables, parsed with `github.com/caarlos0/env/v11`.
//
// Recognized variables:
//
//	ASYNC_BACKEND           threaded | cooperative
//	ASYNC_LOG_LEVEL         debug | info | warn | error
//	ASYNC_LOG_FORMAT        text | json
//	ASYNC_SHUTDOWN_TIMEOUT  Go duration, e.g. 5s
//
// Every loader validates the result before returning it.
package config
