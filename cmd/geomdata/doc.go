// Command geomdata inspects, normalises and creates geometry files.
//
// Usage:
//
//	geomdata inspect scan.geom.xml
//	geomdata convert --precision 15 in.geom.xml out.geom.xml
//	geomdata create --size 256,256,40 --spacing 0.5,0.5,2 --steps 10 out.geom.xml
//	geomdata uid
//	geomdata config init --path geomdata.yaml
//
// Settings are read from geomdata.yaml in the working directory, or from the
// file named by --config.
package main
