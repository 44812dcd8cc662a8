package forensic

import "bytes"

// scanEXIFPresence does a byte-level scan for the ASCII tag names EXIF
// commonly carries in its APP1 segment, without fully decoding the IFD
// structure. The stage only records presence/absence of these three tags
// for its details list; it does not act on the full tag set.
func scanEXIFPresence(raw []byte) (hasSoftware, hasModifyDate, hasCreateDate bool) {
	return bytes.Contains(raw, []byte("Software")),
		bytes.Contains(raw, []byte("ModifyDate")) || bytes.Contains(raw, []byte("DateTime\x00")),
		bytes.Contains(raw, []byte("CreateDate")) || bytes.Contains(raw, []byte("DateTimeOriginal"))
}
