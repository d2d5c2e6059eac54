// Package mongo bootstraps the MongoDB client used by the document-store
// flavor of notification storage. Deployments choose either the Postgres or
// the Mongo backend; both implement notifcenter.Storage.
package mongo
