package email

const (
	subjectRAScheduledFmt  = "Reverse auction scheduled for tender %s"
	subjectRAWonFmt        = "Reverse auction won for tender %s"
	subjectRALostFmt       = "Reverse auction lost for tender %s"
	subjectRAH1Fmt         = "Tender %s eliminated at H1"
	subjectTQReceivedFmt   = "Technical query received for tender %s"
	subjectTQRepliedFmt    = "Technical query reply submitted for tender %s"
	subjectTQMissedFmt     = "Technical query deadline missed for tender %s"
	subjectQualifiedFmt    = "Tender %s technically qualified"
	subjectDisqualifiedFmt = "Tender %s disqualified"
)
