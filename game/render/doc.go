// Package render draws board snapshots as PNG images for the
// /api/sessions/{id}/board.png endpoint.
package render
