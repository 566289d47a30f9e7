// Package stratec reads and de-identifies Stratec pQCT scan file headers.
//
// A scan file starts with a fixed-layout binary header. Fields live at fixed
// byte offsets and are little-endian:
//
//	Offset  Width  Field
//	   986      4  measurement date (packed yyyymmdd)
//	  1050    var  format marker, Pascal string ending in ".typ"
//	  1085      2  measurement number (uint16)
//	  1087      4  patient number (uint32)
//	  1091      4  date of birth (packed yyyymmdd)
//	  1099     41  patient name, Pascal string with 40 data bytes
//	  1282    var  patient ID, Pascal string
//
// # Recognition
//
// Recognition happens in two steps. IsRecognized is a cheap pre-filter on the
// file name (I<digits>.M<2 digits>, any case), type and size (at least 1610
// bytes); files it rejects are skipped without error. IsFormatHeader then
// inspects the marker string of a file that passed the pre-filter; a file
// that fails it is reported with a *FormatError.
//
// # Scrubbing
//
// Scrub rounds the date of birth to the nearest first of the month (ties go
// to the birth month, so 1956-12-16 becomes 1956-12-01 and 1956-12-17 becomes
// 1957-01-01) and zeroes all 41 bytes of the patient-name field. Every other
// byte is copied unchanged. The output is written through a temporary file
// and renamed into place, so a failed write never leaves a truncated file
// behind.
package stratec
