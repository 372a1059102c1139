// Package stream moves file records through ordered transform stages.
//
// A Pipeline globs its source files, hands every record to the stages in order and
// writes the surviving records into the output tree. Each stage returns an explicit
// Result per record, so one failing file never stops its siblings from being written.
package stream
