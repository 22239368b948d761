// Package events defines the notification and request messages exchanged
// with clients and a broadcast Hub that delivers notifications to every
// connected subscriber.
package events
