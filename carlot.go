// Package carlot extracts structured classified-ad records (price, year,
// mileage, engine specs, fuel type, transmission, body style, color,
// location and photos) from listing pages that carry no schema markup.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, sqlite/, rod/) while the
// pattern-based extraction engine lives in extract/.
package carlot
