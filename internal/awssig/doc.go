/*
Package awssig implements AWS Signature Version 4: canonicalization,
header-based request signing, presigned-URL signing, and IMDSv2 instance
credential retrieval.

Signing must reproduce a fixed signature for a fixed date and credential
bit-for-bit, so this package intentionally does not depend on an AWS SDK
signer — an opaque signer cannot be asked to do that.
*/
package awssig
