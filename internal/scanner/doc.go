/*
Package scanner routes queued files to the plugin for their media family and
runs the shared analysis pipeline.

Each Plugin claims a set of extensions (see mediatypes) and turns a
database.Task into a TaskStatus without blocking. The work itself runs on the
CPU pool of the ScanContext:

 1. stat and SHA-1 the file
 2. skip it when a live item already has that fingerprint
 3. decode it with the family's decoder
 4. write a 200px thumbnail to the cache, extract an 8-color palette from
    the thumbnail and reduce the aspect ratio
 5. insert the metadata row

Steps 2 and 5 block on the single-worker I/O pool, so a status only resolves
after its row is written.

The Registry holds the installed plugins in order. Dispatch fans a task out
to every claimant and succeeds when any of them does.
*/
package scanner
