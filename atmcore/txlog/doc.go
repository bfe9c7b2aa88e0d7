// Package txlog journals ATM transactions. A record is opened before the
// validation pipeline runs and completed with the outcome, carrying the
// retrieval reference number (RRN) and system trace audit number (STAN) that
// correlate a request with its response across systems. Journal events can
// additionally be fanned out to an AMQP broker for downstream consumers.
package txlog
