// Package server exposes the directory, account and payment operations over
// HTTP using gin.
//
// Every /api request is rate limited per client address and carries a
// tv_session cookie that selects a per-session fast cache in front of the
// shared store. Health probes and metrics are mounted outside /api.
package server
