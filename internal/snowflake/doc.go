// Package snowflake hands out the 64-bit, time-ordered ids used for catalog
// items and their thumbnail file names.
package snowflake
