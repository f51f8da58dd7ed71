package brand

// releases maps a protocol number to the newest release speaking it.
var releases = map[int32]string{
	773: "1.21.10",
	772: "1.21.8",
	771: "1.21.6",
	770: "1.21.5",
	769: "1.21.4",
	768: "1.21.3",
	767: "1.21.1",
	766: "1.20.6",
	765: "1.20.4",
	764: "1.20.2",
	763: "1.20.1",
	762: "1.19.4",
	761: "1.19.3",
	760: "1.19.2",
	759: "1.19",
	758: "1.18.2",
	757: "1.18.1",
	756: "1.17.1",
	755: "1.17",
	754: "1.16.5",
	753: "1.16.3",
	751: "1.16.2",
	736: "1.16.1",
	735: "1.16",
	578: "1.15.2",
	575: "1.15.1",
	573: "1.15",
	498: "1.14.4",
	490: "1.14.3",
	485: "1.14.2",
	480: "1.14.1",
	477: "1.14",
	404: "1.13.2",
	401: "1.13.1",
	393: "1.13",
	340: "1.12.2",
	338: "1.12.1",
	335: "1.12",
	316: "1.11.2",
	315: "1.11",
	210: "1.10.2",
	110: "1.9.4",
	109: "1.9.2",
	108: "1.9.1",
	107: "1.9",
	47:  "1.8.9",
	5:   "1.7.10",
	4:   "1.7.5",
}

// ReleaseName returns the most recent release using protocol, or Unknown.
func ReleaseName(protocol int32) string {
	if name, ok := releases[protocol]; ok {
		return name
	}
	return Unknown
}
