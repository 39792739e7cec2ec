package main

// General API documentation for swaggo. The generated description lives in
// internal/httpapi/docs.
//
// @title           evbench status API
// @version         1.0
// @description     Read-only status of a running event handler.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
