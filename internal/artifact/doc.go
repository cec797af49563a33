// Package artifact renders one simulation run into the line-oriented
// configuration file consumed by the simulator.
//
// The line order is fixed and must be reproduced byte for byte:
//
//	$define unique_id <run number>
//	random_seed <seed>
//	file_path <path>
//	script_variables
//	   string rootPath = "<root>";
//	end_script_variables
//	include_once <startup file>
//	$define <factor> <value>      (one per factor, in load order)
//	$define EXCURSION <value>
//	$define VIGNETTE <value>
//
// Rendering is a pure function of the run and the header, so regenerating a
// batch reproduces identical files.
package artifact
