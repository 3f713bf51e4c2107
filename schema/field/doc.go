// Package field defines the semantic type tags carried by column
// descriptors. The tag decides how the mapper scans and coerces values
// for a column; an invalid tag is rejected at mapper construction.
package field
