// Package http exposes the studio booking API over JSON.
//
// Session tokens are accepted as `Authorization: Bearer <token>`, the
// `X-Session-Token` header or the `session_token` cookie; login and
// registration set both the header and the cookie. Amounts are integers in
// minor currency units (paise).
//
//   - POST /register {"name","email","password","confirmPassword"} creates a
//     customer and returns {"token","expires_at","user"}.
//   - POST /sessions {"email","password"} logs in. Rate limited per client.
//   - POST /sessions/current/refresh rotates the token; DELETE /sessions/current logs out.
//   - GET /me returns the caller's profile.
//   - GET /catalog lists packages, occasions and storefront products.
//   - GET /slots?date=YYYY-MM-DD&package=<id> lists slot offers with "locked" flags.
//   - GET, PUT /selection reads or stores {"occasion","package"} for the booking in progress.
//   - GET /bookings lists the caller's bookings newest first. POST /bookings
//     {"occasion","package","name","mobile","date","slotStart","paymentToken"}
//     checks out; 402 means the payment was dismissed or declined.
//   - GET /bookings/{id} returns a ticket; POST /bookings/{id}/cancel {"reason"}
//     cancels up to three hours before the slot.
//   - GET, DELETE /cart; POST /cart/items {"id","qty"}; PATCH, DELETE
//     /cart/items/{id}; POST /cart/checkout.
//   - GET, DELETE /admin/bookings; POST /admin/bookings/{id}/cancel
//     {"note","refundAmount"} answers {"booking","refund":{"outcome","error"}};
//     GET /admin/logins and GET /admin/report.
//
// Errors are {"error_code","message","errors"} where errors maps invalid
// fields to messages.
package http
