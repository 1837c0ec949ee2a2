// Package payment creates gateway orders and verifies completed payments.
//
// Orders are created against a Razorpay-compatible orders endpoint and kept
// in SQLite. A payment is accepted when its signature, the hex HMAC-SHA256 of
// "orderID|paymentID" under the gateway secret, matches. Accepted payments
// complete the order and move the buyer to the premium plan.
package payment
