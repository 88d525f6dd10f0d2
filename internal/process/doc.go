// Package process terminates browser process trees left behind by a session.
package process
